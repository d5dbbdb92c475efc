// Package terrain groups the surface-building layers of relief.
//
// Layering (leaves first):
//
//	geom        planar points and bounding boxes
//	ingest      lat/lon/alt sample files
//	project     geographic to planar projection
//	condition   optional grid conditioning of the point cloud
//	triangulate Delaunay triangulation adapter
//	mesh        immutable triangulated surface
//	index       uniform grid of triangle candidates
//	locate      point location and elevation interpolation
//
// Dependency rule: a layer may import layers above it in this list, never
// below. No image or colour code is allowed under terrain/.
package terrain
