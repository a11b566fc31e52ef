package media

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/rotoshake/imagecanvas-sub005/errors"
)

// HTTPUploader posts image bytes to the collaboration server's upload
// endpoint and parses its {url, serverFilename} response. serverFilename is
// also accepted back as "filename" per the server's inconsistent spelling.
type HTTPUploader struct {
	APIBase string
	Client  *http.Client
}

type uploadResponse struct {
	URL            string `json:"url"`
	ServerFilename string `json:"serverFilename"`
	Filename       string `json:"filename"`
}

// Upload implements Uploader.
func (u *HTTPUploader) Upload(hash, filename string, data []byte) (string, string, error) {
	client := u.Client
	if client == nil {
		client = http.DefaultClient
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", "", errors.Mark(errors.Wrap(err, "failed to create multipart file field"), errors.ErrUpload)
	}
	if _, err := part.Write(data); err != nil {
		return "", "", errors.Mark(errors.Wrap(err, "failed to write image bytes to multipart form"), errors.ErrUpload)
	}
	_ = writer.WriteField("hash", hash)
	if err := writer.Close(); err != nil {
		return "", "", errors.Mark(errors.Wrap(err, "failed to close multipart writer"), errors.ErrUpload)
	}

	req, err := http.NewRequest(http.MethodPost, u.APIBase+"/upload", body)
	if err != nil {
		return "", "", errors.Mark(errors.Wrap(err, "failed to build upload request"), errors.ErrUpload)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := client.Do(req)
	if err != nil {
		return "", "", errors.Mark(errors.Wrap(err, "upload request failed"), errors.ErrUpload)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", errors.Mark(errors.Wrap(err, "failed to read upload response"), errors.ErrUpload)
	}
	if resp.StatusCode != http.StatusOK {
		return "", "", errors.Mark(errors.Newf("upload returned status %d: %s", resp.StatusCode, string(respBody)), errors.ErrUpload)
	}

	var parsed uploadResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", "", errors.Mark(errors.Wrapf(err, "failed to parse upload response: %s", string(respBody)), errors.ErrUpload)
	}

	serverFilename := parsed.ServerFilename
	if serverFilename == "" {
		serverFilename = parsed.Filename
	}
	return parsed.URL, serverFilename, nil
}

var _ Uploader = (*HTTPUploader)(nil)
