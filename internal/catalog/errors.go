package catalog

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/rohmanhakim/ghibli-proxy/pkg/failure"
)

type RecordKind string

const (
	KindFilm   RecordKind = "film"
	KindPerson RecordKind = "person"
)

// NotFoundError reports that an ID is absent from the catalog even
// after consulting the cache. Fatal from the catalog's point of view;
// the HTTP layer translates it to a 404.
type NotFoundError struct {
	Kind RecordKind
	ID   uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Severity() failure.Severity {
	return failure.SeverityFatal
}

// Is allows errors.Is to match NotFoundError types
func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}
