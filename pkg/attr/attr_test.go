package attr

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractCorrelationID(t *testing.T) {
	a := ExtractCorrelationID(context.Background())
	assert.Equal(t, "correlation_id", a.Key)
	assert.Equal(t, "", a.Value.String())

	ctx := WithCorrelationID(context.Background(), "abc-123")
	assert.Equal(t, "abc-123", ExtractCorrelationID(ctx).Value.String())
}

func TestError(t *testing.T) {
	assert.Equal(t, "", Error(nil).Value.String())
	assert.Equal(t, "boom", Error(errors.New("boom")).Value.String())
}
