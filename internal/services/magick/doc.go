// Package magick shells out to ImageMagick's convert tool for image
// resizing, keeping the rest of the pipeline unaware of whether resizing
// happens in-process or in a subprocess.
package magick
