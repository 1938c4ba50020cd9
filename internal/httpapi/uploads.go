package httpapi

import (
	"fmt"
	"io"
	"net/http"

	"github.com/cardea-project/cardea/internal/cardea/types"
)

// maxUploadBytes caps multipart photo uploads. Webcam captures land well
// under 2 MiB each; three angles plus form overhead fit comfortably.
const maxUploadBytes = 10 << 20

// readPhotoField pulls one uploaded image out of a multipart form.
func readPhotoField(r *http.Request, field string) ([]byte, error) {
	file, _, err := r.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("missing %q upload", field)
	}
	defer file.Close()

	b, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read %q upload: %w", field, err)
	}
	return b, nil
}

// readPhotoSet pulls the three enrollment angles (fields "front", "left",
// "right") out of a multipart form.
func readPhotoSet(r *http.Request) (types.PhotoSet, error) {
	set := types.PhotoSet{}
	for _, label := range types.PhotoLabels {
		b, err := readPhotoField(r, string(label))
		if err != nil {
			return nil, err
		}
		set[label] = b
	}
	return set, nil
}

func parseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	return r.ParseMultipartForm(maxUploadBytes)
}
