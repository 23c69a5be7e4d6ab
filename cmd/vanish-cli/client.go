package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// statusResponse mirrors the server's status payload.
type statusResponse struct {
	ID          string `json:"id"`
	State       string `json:"state"`
	DownloadURL string `json:"download_url,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

var httpClient = &http.Client{
	Timeout: 5 * time.Minute,
	// Keep the 303 from upload instead of chasing it into a status GET.
	CheckRedirect: func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	},
}

// upload posts the file to /convert/{variant} and returns the new record id.
func upload(ctx context.Context, variant, path, contentType, quality string) (statusResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return statusResponse{}, err
	}
	defer func() { _ = f.Close() }()

	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(path))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
	}
	// The server matches the declared type exactly; strip any parameters the
	// extension lookup added.
	if base, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = base
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		err := writeUploadBody(mw, f, filepath.Base(path), contentType, quality)
		_ = pw.CloseWithError(err)
	}()

	url := strings.TrimRight(serverURL(), "/") + "/convert/" + variant
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, pr)
	if err != nil {
		return statusResponse{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := httpClient.Do(req)
	if err != nil {
		return statusResponse{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusSeeOther && resp.StatusCode != http.StatusOK {
		return statusResponse{}, decodeError(resp)
	}

	var sr statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return statusResponse{}, fmt.Errorf("decode response: %w", err)
	}
	return sr, nil
}

func writeUploadBody(mw *multipart.Writer, f *os.File, filename, contentType, quality string) error {
	if quality != "" {
		if err := mw.WriteField("quality", quality); err != nil {
			return err
		}
	}

	hdr := make(map[string][]string)
	hdr["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name="file"; filename=%q`, filename)}
	hdr["Content-Type"] = []string{contentType}
	part, err := mw.CreatePart(hdr)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f); err != nil {
		return err
	}
	return mw.Close()
}

// status fetches /status/{id}.
func status(ctx context.Context, id string) (statusResponse, error) {
	url := strings.TrimRight(serverURL(), "/") + "/status/" + id
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return statusResponse{}, err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return statusResponse{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return statusResponse{}, decodeError(resp)
	}

	var sr statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return statusResponse{}, fmt.Errorf("decode response: %w", err)
	}
	return sr, nil
}

// download streams /download/{id} into w and returns the server-suggested
// filename.
func download(ctx context.Context, id string, w io.Writer) (string, error) {
	url := strings.TrimRight(serverURL(), "/") + "/download/" + id
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", decodeError(resp)
	}

	filename := ""
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			filename = params["filename"]
		}
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return filename, err
	}
	return filename, nil
}

func decodeError(resp *http.Response) error {
	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err == nil && er.Message != "" {
		return fmt.Errorf("%s (%s)", er.Message, resp.Status)
	}
	return fmt.Errorf("unexpected response: %s", resp.Status)
}
