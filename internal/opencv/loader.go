package opencv

import (
	"errors"
	"os"

	"gocv.io/x/gocv"

	"haze-obliterator/internal/models"
)

// LoaderName is the decoder key selecting this loader.
const LoaderName = "opencv"

// Loader decodes through OpenCV's imgcodecs.
type Loader struct{}

func NewLoader() *Loader {
	return &Loader{}
}

func (l *Loader) Name() string {
	return LoaderName
}

func (l *Loader) LoadFile(path string) (*models.Image, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &models.DecodeError{Source: path, Err: err}
	}
	mat := gocv.IMRead(path, gocv.IMReadColor)
	defer mat.Close()
	if mat.Empty() {
		return nil, &models.DecodeError{Source: path, Err: errors.New("OpenCV could not decode file")}
	}
	img, err := decodedToImage(mat)
	if err != nil {
		return nil, &models.DecodeError{Source: path, Err: err}
	}
	return img, nil
}

func (l *Loader) LoadBytes(data []byte) (*models.Image, error) {
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, &models.DecodeError{Source: "memory", Err: err}
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, &models.DecodeError{Source: "memory", Err: errors.New("OpenCV could not decode buffer")}
	}
	img, err := decodedToImage(mat)
	if err != nil {
		return nil, &models.DecodeError{Source: "memory", Err: err}
	}
	return img, nil
}
