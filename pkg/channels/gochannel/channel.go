// Package gochannel provides the in-process event channel used when autoflow
// runs as a single process, and by tests.
package gochannel

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const (
	// serveBuffer absorbs bursts of node.executed events from fan-out runs
	serveBuffer = 1000
	testBuffer  = 10
)

// CreateChannel creates the publisher and subscriber for `autoflow serve`.
// Events are dropped when nobody is subscribed yet. GoChannel implements
// both sides, so the same instance is returned twice.
func CreateChannel(logger watermill.LoggerAdapter) (*gochannel.GoChannel, *gochannel.GoChannel, error) {
	pubSub := newPubSub(serveBuffer, false, logger)

	return pubSub, pubSub, nil
}

// CreateTestChannel keeps published events so a test can subscribe after
// the workflow already moved.
func CreateTestChannel(logger watermill.LoggerAdapter) (*gochannel.GoChannel, *gochannel.GoChannel, error) {
	pubSub := newPubSub(testBuffer, true, logger)

	return pubSub, pubSub, nil
}

func newPubSub(buffer int64, persistent bool, logger watermill.LoggerAdapter) *gochannel.GoChannel {
	return gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            buffer,
			Persistent:                     persistent,
			BlockPublishUntilSubscriberAck: false,
		},
		logger,
	)
}
