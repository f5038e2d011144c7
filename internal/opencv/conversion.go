package opencv

import (
	"fmt"

	"gocv.io/x/gocv"

	"haze-obliterator/internal/models"
)

// ImageToMat copies an RGB grid into a CV_32FC3 Mat. Channel order is kept
// as RGB; nothing downstream interprets it as BGR.
func ImageToMat(img *models.Image) (gocv.Mat, error) {
	if err := ValidateDimensions(img.Width, img.Height, "image to Mat"); err != nil {
		return gocv.Mat{}, err
	}
	mat := gocv.NewMatWithSize(img.Height, img.Width, gocv.MatTypeCV32FC3)
	for y := 0; y < img.Height; y++ {
		row := img.Row(y)
		for x := 0; x < img.Width; x++ {
			i := x * models.Channels
			for c := 0; c < models.Channels; c++ {
				mat.SetFloatAt3(y, x, c, float32(row[i+c]))
			}
		}
	}
	return mat, nil
}

// MatToImage reads a CV_32FC3 Mat produced by ImageToMat.
func MatToImage(mat gocv.Mat) (*models.Image, error) {
	if err := ValidateMat(mat, "Mat to image"); err != nil {
		return nil, err
	}
	if mat.Type() != gocv.MatTypeCV32FC3 {
		return nil, fmt.Errorf("Mat to image: want CV_32FC3, got type %d", int(mat.Type()))
	}
	img := models.NewImage(mat.Cols(), mat.Rows())
	for y := 0; y < img.Height; y++ {
		row := img.Row(y)
		for x := 0; x < img.Width; x++ {
			i := x * models.Channels
			for c := 0; c < models.Channels; c++ {
				row[i+c] = float64(mat.GetFloatAt3(y, x, c))
			}
		}
	}
	return img, nil
}

func ScalarToMat(m *models.ScalarMap) (gocv.Mat, error) {
	if err := ValidateDimensions(m.Width, m.Height, "scalar map to Mat"); err != nil {
		return gocv.Mat{}, err
	}
	mat := gocv.NewMatWithSize(m.Height, m.Width, gocv.MatTypeCV32FC1)
	for y := 0; y < m.Height; y++ {
		for x, v := range m.Row(y) {
			mat.SetFloatAt(y, x, float32(v))
		}
	}
	return mat, nil
}

func MatToScalar(mat gocv.Mat) (*models.ScalarMap, error) {
	if err := ValidateMat(mat, "Mat to scalar map"); err != nil {
		return nil, err
	}
	if mat.Type() != gocv.MatTypeCV32FC1 {
		return nil, fmt.Errorf("Mat to scalar map: want CV_32FC1, got type %d", int(mat.Type()))
	}
	m := models.NewScalarMap(mat.Cols(), mat.Rows())
	for y := 0; y < m.Height; y++ {
		row := m.Row(y)
		for x := range row {
			row[x] = float64(mat.GetFloatAt(y, x))
		}
	}
	return m, nil
}

// decodedToImage converts an 8-bit BGR, BGRA or gray Mat from the decoder
// into a normalized RGB grid.
func decodedToImage(mat gocv.Mat) (*models.Image, error) {
	if err := ValidateMat(mat, "decoded image"); err != nil {
		return nil, err
	}
	if err := ValidateMatType(mat.Type(), "decoded image"); err != nil {
		return nil, err
	}

	rgb := gocv.NewMat()
	defer rgb.Close()

	switch mat.Channels() {
	case 1:
		gocv.CvtColor(mat, &rgb, gocv.ColorGrayToRGB)
	case 3:
		gocv.CvtColor(mat, &rgb, gocv.ColorBGRToRGB)
	case 4:
		gocv.CvtColor(mat, &rgb, gocv.ColorBGRAToRGB)
	default:
		return nil, fmt.Errorf("unsupported channel count: %d", mat.Channels())
	}

	img := models.NewImage(rgb.Cols(), rgb.Rows())
	for y := 0; y < img.Height; y++ {
		row := img.Row(y)
		for x := 0; x < img.Width; x++ {
			i := x * models.Channels
			for c := 0; c < models.Channels; c++ {
				row[i+c] = float64(rgb.GetUCharAt3(y, x, c)) / 255
			}
		}
	}
	return img, nil
}
