// Package roomba drives an iRobot Create or Roomba from short textual move
// sequences such as "w5aw10ds4f".
//
// Each letter is a motion (w forward, s reverse, a turn left, d turn right,
// f about-face) and the digits after w or s are how many seconds to drive.
// Sequences are parsed, then executed strictly in order by sending Open
// Interface packets over the robot's serial port.
//
// # Installation
//
//	go install github.com/gwillem/roomba/cmd/roomba@latest
//
// # Usage
//
// First, run setup to pick the serial port and driving parameters:
//
//	roomba setup
//
// Try a sequence, or print its packets without a robot attached:
//
//	roomba exec w2ad
//	roomba exec --dry-run w5aw10ds4f
//
// Then accept sequences from a TCP server or an MQTT topic:
//
//	roomba run --server 192.168.1.10:9000
//	roomba run --broker mqtt://localhost:1883 --topic roomba/moves
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/roomba: CLI with setup, run, exec and parse commands
//   - pkg/sequence: Move sequence parser
//   - pkg/oi: Open Interface packet encoder
//   - pkg/robot: Motion primitives, mode lifecycle and configuration
//   - pkg/dispatch: Sequential executor and task queue
//   - pkg/ingest: TCP and MQTT sequence sources
//   - pkg/metrics: Prometheus metrics and health endpoints
package roomba
