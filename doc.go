// Package robotdemos provides keyboard teleoperation for a mobile base
// over its websocket control protocol.
//
// The client holds a control-authority session with the base: it
// acquires control, streams velocity commands derived from the keys
// currently held, and releases control on exit. Status frames coming
// back from the base drive a small state machine that decides whether
// commands are honored.
//
// # Installation
//
//	go install github.com/zhishengyifeng/community-robot-demos/cmd/basectl@latest
//
// # Usage
//
// First, run setup to store the base URL and driving speeds:
//
//	basectl setup
//
// Then start driving:
//
//	basectl teleoperate
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/basectl: CLI with setup and teleoperate commands
//   - cmd/base-info: connectivity probe printing decoded status frames
//   - pkg/basepb: wire types and codec for the base protocol
//   - pkg/base: websocket transport, command constructors, configuration
//   - pkg/teleop: control-authority tracking and the command loop
package robotdemos
