package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"

	suit "github.com/ariel-os/suit-go"
)

// CLI defines the suitdump command-line interface.
//
// We deliberately keep it minimal:
//   - file: the SUIT envelope to inspect
//   - validate: dry-run the common command sequence against no-op hooks
//   - buffer-size: chunk size the dry-run hooks report for streaming reads
type CLI struct {
	File       string `arg:"" help:"SUIT envelope file to inspect"`
	Validate   bool   `help:"Dry-run the common command sequence against stub hooks that accept vendor and class checks (no signature check is performed)"`
	BufferSize int    `default:"64" help:"Read/write chunk size the stub hooks report"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("suitdump"),
		kong.Description("Inspect a SUIT manifest envelope: auth object, version, sequence number."),
	)

	if err := run(&cli); err != nil {
		ctx.FatalIfErrorf(err)
	}
}

func run(cli *CLI) error {
	input, err := os.ReadFile(cli.File)
	if err != nil {
		return fmt.Errorf("read envelope: %w", err)
	}

	manifest := suit.FromBytes(input)
	envelope, err := manifest.Envelope()
	if err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}

	auth, err := envelope.AuthObject()
	if err != nil {
		return fmt.Errorf("auth object: %w", err)
	}
	fmt.Printf("Auth object: %s\n", hex.EncodeToString(auth))

	m, err := envelope.Manifest()
	if err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	version, err := m.Version()
	if err != nil {
		return fmt.Errorf("manifest version: %w", err)
	}
	fmt.Printf("Manifest version: %d\n", version)
	seqNo, err := m.SequenceNumber()
	if err != nil {
		return fmt.Errorf("manifest sequence number: %w", err)
	}
	fmt.Printf("Manifest sequence number: %d\n", seqNo)
	if uri, err := m.ReferenceURI(); err == nil && uri != "" {
		fmt.Printf("Reference URI: %s\n", uri)
	}

	if !cli.Validate {
		return nil
	}

	// Dry run only: Authenticate here records no cryptographic fact, it just
	// unlocks ProcessValidate so manifest authors can see where a command
	// sequence would stop.
	authed, err := manifest.Authenticate().Envelope()
	if err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	am, err := authed.Manifest()
	if err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	hooks := &stubHooks{bufSize: cli.BufferSize}
	if err := am.ProcessValidate(hooks); err != nil {
		fmt.Printf("Validation stopped: %v\n", err)
		return nil
	}
	fmt.Println("Validation sequence completed against stub hooks.")
	return nil
}

// stubHooks accepts the vendor and class identity checks and models each
// component as an empty, infinitely writable store, so a dry run exercises
// the command stream itself rather than any real device state. Device-
// identifier, slot, fetch, invoke and swap fall through to DefaultHooks and
// fail as UnsupportedCommand.
type stubHooks struct {
	suit.DefaultHooks
	bufSize int
}

func (h *stubHooks) ReadWriteBufferSize() int { return h.bufSize }

func (h *stubHooks) MatchVendorID(uuid.UUID, *suit.ComponentInfo) (bool, error) { return true, nil }

func (h *stubHooks) MatchClassID(uuid.UUID, *suit.ComponentInfo) (bool, error) { return true, nil }

func (h *stubHooks) ComponentRead(_ *suit.ComponentInfo, _ *uint64, _ int, buf []byte) error {
	for i := range buf {
		buf[i] = 0
	}
	return nil
}

func (h *stubHooks) ComponentWrite(*suit.ComponentInfo, *uint64, int, []byte) error { return nil }

func (h *stubHooks) ComponentSize(*suit.ComponentInfo) (int, error) { return 0, nil }

func (h *stubHooks) ComponentCapacity(*suit.ComponentInfo) (int, error) { return 0, nil }
