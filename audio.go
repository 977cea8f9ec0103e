package venice

import (
	"context"
	"net/http"
)

const audioSpeechPath = "audio/speech"

// AudioResource exposes speech synthesis endpoints.
type AudioResource struct {
	client *Client
}

// SpeechRequest is the request body for text-to-speech synthesis.
type SpeechRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
	Voice string `json:"voice"`
	// ResponseFormat selects the audio container: mp3, opus, aac, flac,
	// wav, or pcm. Defaults to mp3 server-side.
	ResponseFormat string `json:"response_format,omitempty"`
	// Speed is the playback speed multiplier, 0.25 to 4.0.
	Speed *float64 `json:"speed,omitempty"`
}

// CreateSpeech synthesizes speech from text and returns the complete audio
// payload as raw bytes.
func (r *AudioResource) CreateSpeech(ctx context.Context, req *SpeechRequest) ([]byte, error) {
	if err := r.validate(req); err != nil {
		return nil, err
	}

	headers := make(http.Header)
	headers.Set("Accept", "audio/*")
	return r.client.doRaw(ctx, requestOptions{
		method:  http.MethodPost,
		path:    audioSpeechPath,
		body:    req,
		headers: headers,
	})
}

// CreateSpeechStreaming synthesizes speech and returns the audio as a raw
// byte stream, yielding chunks as they arrive. The caller must Close the
// stream.
func (r *AudioResource) CreateSpeechStreaming(ctx context.Context, req *SpeechRequest) (*ByteStream, error) {
	if err := r.validate(req); err != nil {
		return nil, err
	}

	headers := make(http.Header)
	headers.Set("Accept", "audio/*")
	return r.client.byteStreamRequest(ctx, requestOptions{
		method:  http.MethodPost,
		path:    audioSpeechPath,
		body:    req,
		headers: headers,
	})
}

func (r *AudioResource) validate(req *SpeechRequest) error {
	url := r.client.baseURL() + "/" + audioSpeechPath
	if req == nil || req.Model == "" {
		return invalidRequestError("model parameter is required and cannot be empty.", http.MethodPost, url)
	}
	if req.Input == "" {
		return invalidRequestError("input parameter is required and cannot be empty.", http.MethodPost, url)
	}
	if req.Voice == "" {
		return invalidRequestError("voice parameter is required and cannot be empty.", http.MethodPost, url)
	}
	if req.Speed != nil && (*req.Speed < 0.25 || *req.Speed > 4.0) {
		return invalidRequestError("speed must be between 0.25 and 4.0.", http.MethodPost, url)
	}
	return nil
}
