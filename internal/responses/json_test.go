package responses

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"tablescope/internal/apperrors"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("table: %w", apperrors.ErrInvalidIdentifier), http.StatusBadRequest},
		{fmt.Errorf("%w: page size 0", apperrors.ErrInvalidPagination), http.StatusBadRequest},
		{fmt.Errorf("%w: count rows: timeout", apperrors.ErrQueryExecutionFailed), http.StatusBadGateway},
		{fmt.Errorf("%w: query tables: refused", apperrors.ErrMetadataUnavailable), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}
