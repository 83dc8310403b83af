package gap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	jsoniter "github.com/json-iterator/go"
)

var ErrPinningDisabled = errors.New("content pinning is not configured")

// Pinner stores binary content and returns a stable content identifier.
type Pinner interface {
	Pin(ctx context.Context, name string, data []byte) (string, error)
}

type PinataPinner struct {
	Endpoint  string
	APIKey    string
	SecretKey string
	Client    *http.Client
}

func NewPinataPinner(endpoint, apiKey, secretKey string) *PinataPinner {
	return &PinataPinner{
		Endpoint:  endpoint,
		APIKey:    apiKey,
		SecretKey: secretKey,
		Client:    http.DefaultClient,
	}
}

func (v *PinataPinner) Pin(ctx context.Context, name string, data []byte) (string, error) {
	if len(v.APIKey) == 0 || len(v.SecretKey) == 0 {
		return "", ErrPinningDisabled
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	file, err := form.CreateFormFile("file", name)
	if err != nil {
		return "", err
	}
	if _, err := file.Write(data); err != nil {
		return "", err
	}
	metadata, _ := jsoniter.MarshalToString(map[string]any{"name": name})
	_ = form.WriteField("pinataMetadata", metadata)
	_ = form.WriteField("pinataOptions", `{"cidVersion":0}`)
	if err := form.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.Endpoint+"/pinning/pinFileToIPFS", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("pinata_api_key", v.APIKey)
	req.Header.Set("pinata_secret_api_key", v.SecretKey)

	resp, err := v.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload content: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d, response: %s", resp.StatusCode, body)
	}

	var out struct {
		IpfsHash string `json:"IpfsHash"`
	}
	if err := jsoniter.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("failed to parse pinning response: %v", err)
	} else if len(out.IpfsHash) == 0 {
		return "", fmt.Errorf("pinning response has no content identifier")
	}

	return out.IpfsHash, nil
}
