// Package atlas is the reconstruction API: a Session ties one manifest to the
// raster cache, the compositor and the encoder.
//
//	s, err := atlas.Open("ui/atlas.json", atlas.Options{Crop: imaging.CropFull})
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	res, err := s.Compose("button_ok", "", "png")
//	...
//	report, err := s.ExportAll(ctx, "out", "png")
//
// Atlas rasters are read from SourceDir/<atlasName><Extension> the first time
// a sprite on them is requested and stay cached until Close.
package atlas
