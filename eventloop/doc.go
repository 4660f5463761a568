// Package eventloop drives a serial transport from a single goroutine.
//
// The loop registers the transport's descriptor with a readiness
// multiplexer and shuttles bytes between the wire and the emulator:
//
//	loop, err := eventloop.New(tty, eventloop.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	done := loop.Spawn(ctx)
//
//	sender := loop.Sender()
//	sender.Input([]byte("AT\r"))
//
//	for chunk := range loop.Inbound() {
//	    emulator.Feed(chunk)
//	}
//	err = <-done
//
// Bytes reach Inbound in wire order and reach the wire in the order they
// were sent. The transport is never read or written outside the loop
// goroutine, and every wait goes through the multiplexer so a read or write
// never stalls it. Inbound is fed from a backlog by a separate delivery
// goroutine. A slow emulator therefore never holds up output; once the
// backlog is full the loop stops reading and leaves bytes in the driver.
//
// The loop moves through three states. It starts Registered; a shutdown
// request (Sender.Shutdown or context cancellation) moves it to Draining,
// where it deregisters, makes one best-effort flush of queued output and
// closes the transport; it then ends Closed. A read or write error moves it
// straight to Closed and is returned from Run as a
// *serialtty.TransportIOError. Nothing is retried.
package eventloop
