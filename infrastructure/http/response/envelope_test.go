package response

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tourneyhub/tourney-client/pkg/apierror"
)

func TestErrorBodiesAreReadableByTheClient(t *testing.T) {
	rec := httptest.NewRecorder()
	Unauthorized(rec, "Invalid credentials")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", apierror.ExtractMessage(rec.Body.Bytes()))

	rec = httptest.NewRecorder()
	UnprocessableEntity(rec, "field required")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "field required", apierror.ExtractMessage(rec.Body.Bytes()))
}
