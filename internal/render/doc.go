// Package render groups the image layers of relief.
//
// Layering (leaves first):
//
//	colormap   elevation to RGB, gradients and baked palette tables
//	hillshade  Lambertian shading of a regular elevation grid
//	raster     per-pixel point location, colour and shade compositing
//	imageio    PPM and PNG encoding
//	diag       histograms and summary statistics
//
// render may import terrain/geom but never the triangulation layers;
// raster reads elevations through its Interpolator interface.
package render
