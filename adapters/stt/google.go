package stt

import (
	"context"
	"encoding/binary"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"

	"github.com/voicearena/server/domain/repositories"
)

const languageCode = "en-US"

// GoogleTranscriber implements Transcriber using the Google Cloud Speech
// synchronous Recognize API. One window or capture is one request; the
// streaming API buys nothing for audio that is already fully buffered.
type GoogleTranscriber struct {
	client *speech.Client
	logger *zap.Logger
}

// Ensure GoogleTranscriber implements the Transcriber interface
var _ repositories.Transcriber = (*GoogleTranscriber)(nil)

// NewGoogleTranscriber creates a transcriber backed by a long-lived speech
// client. Credentials come from the standard Google application-default
// mechanisms.
func NewGoogleTranscriber(ctx context.Context, logger *zap.Logger) (*GoogleTranscriber, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}
	return &GoogleTranscriber{client: client, logger: logger}, nil
}

// Transcribe converts normalized samples back to 16-bit PCM and runs one
// recognition pass. An empty transcript is not an error.
func (g *GoogleTranscriber) Transcribe(ctx context.Context, samples []float32, sampleRate int) (string, error) {
	response, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz: int32(sampleRate),
			LanguageCode:    languageCode,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{
				Content: encodePCM(samples),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("recognition request failed: %w", err)
	}

	var sb strings.Builder
	for _, result := range response.Results {
		if len(result.Alternatives) == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(result.Alternatives[0].Transcript)
	}

	g.logger.Debug("Transcription complete",
		zap.Int("samples", len(samples)),
		zap.Int("length", sb.Len()))
	return sb.String(), nil
}

// Close releases the underlying client.
func (g *GoogleTranscriber) Close() error {
	return g.client.Close()
}

// encodePCM converts [-1,1] samples to little-endian 16-bit PCM.
func encodePCM(samples []float32) []byte {
	out := make([]byte, 2*len(samples))
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		binary.LittleEndian.PutUint16(out[2*i:], uint16(int16(s*32767)))
	}
	return out
}
