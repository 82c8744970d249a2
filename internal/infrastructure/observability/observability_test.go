package observability

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bootlang/services/agent-api/internal/config"
)

func TestSetupDisabledReturnsNoopShutdown(t *testing.T) {
	shutdown, err := Setup(context.Background(), &config.Config{EnableTracing: false}, zerolog.Nop())

	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetupWithoutEndpointStaysDisabled(t *testing.T) {
	cfg := &config.Config{EnableTracing: true, OTLPEndpoint: ""}

	shutdown, err := Setup(context.Background(), cfg, zerolog.Nop())

	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
