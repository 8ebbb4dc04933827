/*
Package event provides the pub/sub event bus the hook engine reports to.

Publishers emit events without knowing who consumes them: the engine
publishes registrations, denials and completed dispatches, the failure sink
publishes swallowed hook failures, and the config watcher publishes reloads.

# Event Types

  - hook.registered: a hook was added to the table
  - hook.failed: a hook raised, panicked or timed out during a dispatch
  - dispatch.denied: the permission gate rejected a dispatch
  - dispatch.completed: a dispatch finished (any result)
  - config.reloaded: configuration was reloaded from disk

# Basic Usage

	bus := event.NewBus()
	defer bus.Close()

	unsubscribe := bus.Subscribe(event.HookFailed, func(e event.Event) {
		data := e.Data.(event.HookFailedData)
		log.Warn().Str("hook", data.HookID).Msg(data.Cause)
	})
	defer unsubscribe()

# Subscriber Safety Guidelines

PublishSync calls subscribers in the publisher's goroutine. The engine
publishes from inside a dispatch, which may be running on a cooperative
scheduler loop, so subscribers MUST:

  - Complete quickly
  - Use non-blocking channel sends (select with default case)
  - Never call Publish/PublishSync from within a subscriber

# Streaming

Every published event is also forwarded as a JSON watermill message on
Topic. Stream returns a channel of those messages; the HTTP server uses it
to feed Server-Sent Events. Consumers must Ack each message.
*/
package event
