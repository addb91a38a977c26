// Package scan bounds the time spent acquiring a QR payload from a source.
package scan

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"veriscan/internal/model"
	"veriscan/internal/qr"

	"github.com/rs/zerolog"
)

// DefaultWindow is how long a scan waits for a decodable code.
const DefaultWindow = 20 * time.Second

// Stream yields decoded payloads from an acquired device or upload.
// Next returns qr.ErrNoCode for a frame without a code and io.EOF when the
// stream has nothing more to offer.
type Stream interface {
	Next(ctx context.Context) (string, error)
	Close() error
}

// Source acquires a Stream. Camera drivers implement Source outside this package.
type Source interface {
	Open(ctx context.Context) (Stream, error)
}

// Scanner reads a single payload from a Source within its window.
type Scanner struct {
	window time.Duration
	logger zerolog.Logger
}

// NewScanner creates a scanner. A non-positive window uses DefaultWindow.
func NewScanner(window time.Duration, logger zerolog.Logger) *Scanner {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Scanner{
		window: window,
		logger: logger.With().Str("component", "scanner").Logger(),
	}
}

// Scan returns the first payload src yields. The stream is always closed
// before Scan returns.
func (s *Scanner) Scan(ctx context.Context, src Source) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.window)
	defer cancel()

	stream, err := src.Open(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return "", s.interrupted(ctx)
		}
		return "", model.ErrDeviceUnavailable.Wrap(err)
	}
	defer func() {
		if err := stream.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to release scan source")
		}
	}()

	frames := 0
	for {
		payload, err := stream.Next(ctx)
		switch {
		case err == nil:
			s.logger.Debug().Int("frames", frames).Msg("code decoded")
			return payload, nil
		case ctx.Err() != nil:
			return "", s.interrupted(ctx)
		case errors.Is(err, qr.ErrNoCode):
			frames++
		case errors.Is(err, io.EOF):
			return "", model.ErrScanTimedOut.WithMessage("no QR code was found, try another image")
		default:
			var de *model.DomainError
			if errors.As(err, &de) {
				return "", err
			}
			return "", model.ErrDeviceUnavailable.Wrap(err)
		}
	}
}

func (s *Scanner) interrupted(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		s.logger.Info().Dur("window", s.window).Msg("scan timed out")
		return model.ErrScanTimedOut.Wrap(ctx.Err())
	}
	return model.ErrScanCancelled.Wrap(ctx.Err())
}

// ImageSource scans a single uploaded PNG or JPEG image.
type ImageSource struct {
	Data []byte
}

func (s ImageSource) Open(ctx context.Context) (Stream, error) {
	return &imageStream{data: s.Data}, nil
}

type imageStream struct {
	data []byte
	read bool
}

func (s *imageStream) Next(ctx context.Context) (string, error) {
	if s.read {
		return "", io.EOF
	}
	s.read = true

	payload, err := qr.Decode(bytes.NewReader(s.data))
	if err != nil {
		if errors.Is(err, qr.ErrNoCode) {
			return "", io.EOF
		}
		return "", model.ErrInvalidInput.WithMessage("uploaded file is not a readable PNG or JPEG image").Wrap(err)
	}
	return payload, nil
}

func (s *imageStream) Close() error {
	s.data = nil
	return nil
}
