package main

import (
	"fmt"
	"os"

	"github.com/zhishengyifeng/community-robot-demos/pkg/base"
	"github.com/zhishengyifeng/community-robot-demos/pkg/basepb"
)

const frameCount = 10

func main() {
	fmt.Println("🤖 Base Status Probe")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	rawURL := urlFromArgsOrConfig()

	fmt.Printf("Connecting to %s...\n", rawURL)
	conn, err := base.Dial(rawURL)
	if err != nil {
		fmt.Printf("Error connecting: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	// A probe, not a control session: ask for a gentle report rate and
	// never acquire control.
	if err := conn.Send(base.SetReportFrequency(basepb.ReportFrequency10Hz)); err != nil {
		fmt.Printf("Error requesting reports: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Reading %d frames...\n\n", frameCount)

	var version uint32
	for i := 0; i < frameCount; i++ {
		up, err := conn.Receive()
		if err != nil {
			fmt.Printf("Error reading frame: %v\n", err)
			os.Exit(1)
		}
		version = up.ProtocolMajorVersion
		printFrame(i+1, up)
	}

	fmt.Println()
	fmt.Println("━━━━━━━━━━━━━━━━━━━━")
	if version == basepb.MajorVersion {
		fmt.Printf("✓ Base is reachable and speaks protocol major version %d\n", version)
	} else {
		fmt.Printf("⚠ Base speaks protocol major version %d, this client expects %d\n", version, basepb.MajorVersion)
	}
}

func urlFromArgsOrConfig() string {
	if len(os.Args) > 1 {
		return os.Args[1]
	}

	cfg, err := base.LoadConfig()
	if err != nil || cfg.URL == "" {
		fmt.Println("Usage: base-info <ws://host:port>")
		fmt.Println("(or run 'basectl setup' to save a URL)")
		os.Exit(1)
	}
	return cfg.URL
}

func printFrame(n int, up *basepb.ApiUp) {
	fmt.Printf("frame %d: session=%d version=%d", n, up.SessionId, up.ProtocolMajorVersion)
	if up.Log != nil {
		fmt.Printf(" log=%q", *up.Log)
	}
	if status := up.GetBaseStatus(); status != nil {
		fmt.Printf(" initialized=%v holder=%d", status.ApiControlInitialized, status.SessionHolder)
		if status.ParkingStopDetail != nil {
			fmt.Printf(" parking=%v", *status.ParkingStopDetail)
		}
		if odo := status.EstimatedOdometry; odo != nil {
			fmt.Printf(" odometry=(%.3f, %.3f, %.3f)", odo.SpeedX, odo.SpeedY, odo.SpeedZ)
		}
	}
	fmt.Println()
}
