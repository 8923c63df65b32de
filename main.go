// main.go - command line front end for the emulator core.

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

func main() {
	var (
		machineName  string
		romPath      string
		tapePath     string
		snapshotPath string
		wavPath      string
		frames       int
		noTapeAudio  bool
	)

	flagSet := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVar(&machineName, "machine", "48k", "Machine model: 48k, 128k or plus2")
	flagSet.StringVar(&romPath, "rom", "", "ROM image (16K for 48k, 32K for 128k/plus2)")
	flagSet.StringVar(&tapePath, "tape", "", "Tape image (.tap or .tzx)")
	flagSet.StringVar(&snapshotPath, "snapshot", "", "Snapshot to load (.z80)")
	flagSet.StringVar(&wavPath, "wav", "", "Capture audio output to a WAV file")
	flagSet.IntVar(&frames, "frames", 0, "Run this many frames then exit (0 = run until interrupted)")
	flagSet.BoolVar(&noTapeAudio, "no-tape-audio", false, "Mute the tape loading tone in the mix")

	flagSet.Usage = func() {
		flagSet.SetOutput(os.Stdout)
		fmt.Println("Usage: zxcore -rom 48.rom [-machine 48k|128k|plus2] [-tape game.tap] [-snapshot game.z80] [-wav out.wav] [-frames N]")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			flagSet.Usage()
			os.Exit(0)
		}
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	var model int
	switch strings.ToLower(machineName) {
	case "48k", "48":
		model = Machine48K
	case "128k", "128":
		model = Machine128K
	case "plus2", "+2":
		model = MachinePlus2
	default:
		fmt.Printf("Error: unknown machine %q (want 48k, 128k or plus2)\n", machineName)
		os.Exit(1)
	}

	if romPath == "" {
		fmt.Println("Error: a ROM image is required (-rom)")
		os.Exit(1)
	}

	machine := NewMachine(model)

	rom, err := os.ReadFile(romPath)
	if err != nil {
		fmt.Printf("Error reading ROM: %v\n", err)
		os.Exit(1)
	}
	if err := machine.LoadROM(rom); err != nil {
		fmt.Printf("Error loading ROM: %v\n", err)
		os.Exit(1)
	}

	if tapePath != "" {
		data, err := os.ReadFile(tapePath)
		if err != nil {
			fmt.Printf("Error reading tape: %v\n", err)
			os.Exit(1)
		}
		switch strings.ToLower(filepath.Ext(tapePath)) {
		case ".tzx":
			err = machine.LoadTZX(data)
		default:
			err = machine.LoadTAP(data)
		}
		if err != nil {
			fmt.Printf("Error loading tape: %v\n", err)
			os.Exit(1)
		}
		machine.TapePlay()
	}

	if snapshotPath != "" {
		data, err := os.ReadFile(snapshotPath)
		if err != nil {
			fmt.Printf("Error reading snapshot: %v\n", err)
			os.Exit(1)
		}
		if err := machine.LoadSnapshot(data); err != nil {
			fmt.Printf("Error loading snapshot: %v\n", err)
			os.Exit(1)
		}
	}

	if noTapeAudio {
		machine.SetTapeMonitor(false)
	}

	var wavOut *WavWriter
	if wavPath != "" {
		wavOut = NewWavWriter(wavPath)
	}

	if frames > 0 {
		// Batch mode: run flat out, no realtime audio or input.
		for i := 0; i < frames; i++ {
			machine.RunFrame()
			if wavOut != nil {
				wavOut.AppendFrame(machine.mixer.Samples())
			}
		}
		if wavOut != nil {
			if err := wavOut.Close(); err != nil {
				fmt.Printf("Error writing WAV: %v\n", err)
				os.Exit(1)
			}
		}
		return
	}

	audioOut, err := NewAudioOutput(AudioSampleRate)
	if err != nil {
		fmt.Printf("Failed to initialize audio: %v\n", err)
		os.Exit(1)
	}
	audioOut.Start()
	defer audioOut.Close()

	host := NewTerminalHost()
	host.Start()
	defer host.Stop()

	fmt.Printf("Running %s (Ctrl+C to quit)\n", machineName)

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		host.Pump(machine)
		machine.RunFrame()
		audioOut.Push(machine.AudioSamples())
		if wavOut != nil {
			wavOut.AppendFrame(machine.mixer.Samples())
		}
	}
}
