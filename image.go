package venice

import (
	"context"
	"net/http"
	"strconv"
)

const (
	imageGeneratePath    = "image/generate"
	imageUpscalePath     = "image/upscale"
	imageStylesPath      = "image/styles"
	imageGenerationsPath = "images/generations"
)

// ImageResource exposes image generation and manipulation endpoints.
type ImageResource struct {
	client *Client
}

// ImageGenerateRequest is the request body for Venice-native image
// generation.
type ImageGenerateRequest struct {
	Model          string   `json:"model"`
	Prompt         string   `json:"prompt"`
	NegativePrompt string   `json:"negative_prompt,omitempty"`
	Width          *int     `json:"width,omitempty"`
	Height         *int     `json:"height,omitempty"`
	Steps          *int     `json:"steps,omitempty"`
	CfgScale       *float64 `json:"cfg_scale,omitempty"`
	Seed           *int64   `json:"seed,omitempty"`
	StylePreset    string   `json:"style_preset,omitempty"`
	Format         string   `json:"format,omitempty"`
	HideWatermark  *bool    `json:"hide_watermark,omitempty"`
	SafeMode       *bool    `json:"safe_mode,omitempty"`

	// ReturnBinary requests the raw image bytes instead of a JSON envelope.
	ReturnBinary bool `json:"return_binary,omitempty"`
}

// ImageResponse is the JSON envelope returned by image/generate.
type ImageResponse struct {
	ID     string   `json:"id"`
	Images []string `json:"images"`
	Timing any      `json:"timing,omitempty"`
}

// SimpleImageRequest is the OpenAI-compatible image generation request.
type SimpleImageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              *int   `json:"n,omitempty"`
	Size           string `json:"size,omitempty"`
	ResponseFormat string `json:"response_format,omitempty"`
	OutputFormat   string `json:"output_format,omitempty"`
	User           string `json:"user,omitempty"`
}

// SimpleImageData is one generated image in a SimpleImageResponse.
type SimpleImageData struct {
	B64JSON string `json:"b64_json,omitempty"`
	URL     string `json:"url,omitempty"`
}

// SimpleImageResponse is the OpenAI-compatible image generation response.
type SimpleImageResponse struct {
	Created int64             `json:"created"`
	Data    []SimpleImageData `json:"data"`
}

// ImageUpscaleRequest describes an image upscale upload.
type ImageUpscaleRequest struct {
	// Image is the raw image content to upscale (required).
	Image []byte
	// Filename labels the multipart file part. Defaults to "image.png".
	Filename string
	// Scale is the upscale factor. The API defaults to 2; when Scale is 1
	// the API requires Enhance, which is forced on here.
	Scale *float64
	// Enhance applies quality enhancement during the upscale.
	Enhance *bool
	// Replication controls how strongly artifacts in the source are
	// replicated in the result.
	Replication *float64
}

// ImageStyleList is the response for the style listing endpoint.
type ImageStyleList struct {
	Object string   `json:"object,omitempty"`
	Data   []string `json:"data"`
}

// Generate creates images from a text prompt using the Venice-native
// endpoint. When req.ReturnBinary is set the raw image bytes are returned
// and the JSON envelope is nil.
func (r *ImageResource) Generate(ctx context.Context, req *ImageGenerateRequest) (*ImageResponse, []byte, error) {
	url := r.client.baseURL() + "/" + imageGeneratePath
	if req == nil || req.Model == "" {
		return nil, nil, invalidRequestError("model parameter is required and cannot be empty.", http.MethodPost, url)
	}
	if req.Prompt == "" {
		return nil, nil, invalidRequestError("prompt parameter is required and cannot be empty.", http.MethodPost, url)
	}

	if req.ReturnBinary {
		headers := make(http.Header)
		headers.Set("Accept", "image/*")
		raw, err := r.client.doRaw(ctx, requestOptions{
			method:  http.MethodPost,
			path:    imageGeneratePath,
			body:    req,
			headers: headers,
		})
		if err != nil {
			return nil, nil, err
		}
		return nil, raw, nil
	}

	var resp ImageResponse
	err := r.client.do(ctx, requestOptions{
		method: http.MethodPost,
		path:   imageGeneratePath,
		body:   req,
	}, &resp)
	if err != nil {
		return nil, nil, err
	}
	return &resp, nil, nil
}

// SimpleGenerate creates images through the OpenAI-compatible endpoint.
func (r *ImageResource) SimpleGenerate(ctx context.Context, req *SimpleImageRequest) (*SimpleImageResponse, error) {
	url := r.client.baseURL() + "/" + imageGenerationsPath
	if req == nil || req.Prompt == "" {
		return nil, invalidRequestError("prompt parameter is required and cannot be empty.", http.MethodPost, url)
	}
	if req.N != nil && (*req.N < 1 || *req.N > 10) {
		return nil, invalidRequestError("n must be between 1 and 10.", http.MethodPost, url)
	}

	var resp SimpleImageResponse
	err := r.client.do(ctx, requestOptions{
		method: http.MethodPost,
		path:   imageGenerationsPath,
		body:   req,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Upscale increases the resolution of an image. The image is uploaded as
// multipart/form-data and the upscaled image bytes are returned directly.
func (r *ImageResource) Upscale(ctx context.Context, req *ImageUpscaleRequest) ([]byte, error) {
	url := r.client.baseURL() + "/" + imageUpscalePath
	if req == nil || len(req.Image) == 0 {
		return nil, invalidRequestError("image is required and cannot be empty.", http.MethodPost, url)
	}

	filename := req.Filename
	if filename == "" {
		filename = "image.png"
	}

	fields := make(map[string]string)
	scale := 2.0
	if req.Scale != nil {
		scale = *req.Scale
	}
	fields["scale"] = strconv.FormatFloat(scale, 'f', -1, 64)

	enhance := req.Enhance
	if scale == 1.0 {
		// The API rejects scale 1 without enhancement.
		t := true
		enhance = &t
	}
	if enhance != nil {
		fields["enhance"] = strconv.FormatBool(*enhance)
	}
	if req.Replication != nil {
		fields["replication"] = strconv.FormatFloat(*req.Replication, 'f', -1, 64)
	}

	files := []filePart{{
		field:       "image",
		filename:    filename,
		contentType: "application/octet-stream",
		content:     req.Image,
	}}

	return r.client.doMultipart(ctx, requestOptions{
		method: http.MethodPost,
		path:   imageUpscalePath,
	}, files, fields, true, nil)
}

// ListStyles lists the style presets accepted by image generation.
func (r *ImageResource) ListStyles(ctx context.Context) (*ImageStyleList, error) {
	var styles ImageStyleList
	err := r.client.do(ctx, requestOptions{
		method: http.MethodGet,
		path:   imageStylesPath,
	}, &styles)
	if err != nil {
		return nil, err
	}
	return &styles, nil
}
