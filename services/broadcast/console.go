// Package broadcastsvc provides core.Broadcaster implementations.
package broadcastsvc

import (
	"fmt"

	"github.com/trezcool/darasa/core"
)

// consoleBroadcaster logs published events instead of delivering them; the
// default for local development and the admin CLI.
type consoleBroadcaster struct {
	logger core.Logger
}

var _ core.Broadcaster = (*consoleBroadcaster)(nil)

func NewConsoleBroadcaster(logger core.Logger) core.Broadcaster {
	return &consoleBroadcaster{logger: logger}
}

func (b consoleBroadcaster) Publish(channel, event string, payload interface{}) {
	b.logger.Debug(fmt.Sprintf("broadcast [%s] %s: %+v", channel, event, payload))
}
