package errorutil

import (
	"errors"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestToDomainErrorPassthrough(t *testing.T) {
	err := NewStaleUpdate()
	domainErr := ToDomainError(err)
	if domainErr.Code != "STALE_UPDATE" || domainErr.HTTPStatus != http.StatusConflict {
		t.Errorf("unexpected mapping: %+v", domainErr)
	}
}

func TestToDomainErrorWrapsUnknown(t *testing.T) {
	domainErr := ToDomainError(errors.New("boom"))
	if domainErr.Code != "INTERNAL_ERROR" || domainErr.HTTPStatus != http.StatusInternalServerError {
		t.Errorf("unexpected mapping: %+v", domainErr)
	}
}

func TestToDomainErrorMapsNoRows(t *testing.T) {
	domainErr := ToDomainError(pgx.ErrNoRows)
	if domainErr.Code != "NOT_FOUND" || domainErr.HTTPStatus != http.StatusNotFound {
		t.Errorf("unexpected mapping: %+v", domainErr)
	}
}

func TestFieldRequiredNamesField(t *testing.T) {
	domainErr := ToDomainError(NewFieldRequired("title"))
	if domainErr.Code != "FIELD_REQUIRED" {
		t.Errorf("unexpected code %s", domainErr.Code)
	}
	if domainErr.Details["field"] != "title" {
		t.Errorf("expected field detail, got %+v", domainErr.Details)
	}
}
