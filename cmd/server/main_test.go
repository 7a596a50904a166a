package main

import (
	"errors"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWaitForStop(t *testing.T) {
	t.Run("signal", func(t *testing.T) {
		quit := make(chan os.Signal, 1)
		quit <- syscall.SIGTERM
		assert.NoError(t, waitForStop(quit, make(chan error)))
	})

	t.Run("listener failure", func(t *testing.T) {
		serveErr := make(chan error, 1)
		listenErr := errors.New("address already in use")
		serveErr <- listenErr
		assert.ErrorIs(t, waitForStop(make(chan os.Signal), serveErr), listenErr)
	})
}
