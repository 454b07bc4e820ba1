package imaging

import "github.com/pkg/errors"

var (
	// ErrRasterRead marks an atlas raster file that could not be opened or read.
	ErrRasterRead = errors.New("atlas raster unreadable")

	// ErrRasterDecode marks an atlas raster the codec could not decode.
	ErrRasterDecode = errors.New("atlas raster undecodable")

	// ErrIndexListTooShort marks a cell index list that ran out before every
	// grid position of the sprite was filled.
	ErrIndexListTooShort = errors.New("cell index list too short")

	// ErrIndexListTooLong marks a cell index list with entries left over after
	// every grid position was filled.
	ErrIndexListTooLong = errors.New("cell index list too long")

	// ErrBadCellIndex marks a cell index outside the atlas grid.
	ErrBadCellIndex = errors.New("bad cell index")

	// ErrCrop marks a crop policy that is unknown or could not be applied.
	ErrCrop = errors.New("crop failed")

	// ErrUnsupportedFormat marks an output format the encoder cannot write.
	ErrUnsupportedFormat = errors.New("unsupported output format")

	// ErrTransform marks an invalid transform description.
	ErrTransform = errors.New("bad transform")
)
