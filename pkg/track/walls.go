package track

import (
	"sort"

	"github.com/e-rk/speedtools/pkg/types"
)

// heightSample pairs a waypoint with its wall height.
type heightSample struct {
	location types.Vector3d
	height   float64
}

// raiseWalls synthesizes vertical wall quads along the collision edges
// tagged with wall collision, raising them by the wall height of the
// nearby waypoints. The wall meshes are appended to each segment's
// collision meshes.
func raiseWalls(segments []types.TrackSegment, heights []float64) {
	samples := chunkHeights(segments, heights)
	for i := range segments {
		segment := &segments[i]
		// Waypoints of the adjacent segments contribute too; the
		// track loops, so neighbors wrap around.
		var nearby []heightSample
		for _, j := range []int{i - 1, i, i + 1} {
			nearby = append(nearby, samples[(j+len(segments))%len(segments)]...)
		}

		var walls []types.CollisionMesh
		for _, mesh := range segment.CollisionMeshes {
			if wall, ok := buildWall(mesh, nearby); ok {
				walls = append(walls, wall)
			}
		}
		if len(walls) == 0 {
			continue
		}
		merged := walls[0]
		for _, wall := range walls[1:] {
			merged = types.MergeCollisionMeshes(merged, wall)
		}
		segment.CollisionMeshes = append(segment.CollisionMeshes, types.RemoveUnusedVertices(merged))
	}
}

// chunkHeights slices the global height table into per-segment samples
// following the waypoint counts. A short table truncates the samples.
func chunkHeights(segments []types.TrackSegment, heights []float64) [][]heightSample {
	samples := make([][]heightSample, len(segments))
	offset := 0
	for i := range segments {
		for _, waypoint := range segments[i].Waypoints {
			if offset >= len(heights) {
				return samples
			}
			samples[i] = append(samples[i], heightSample{
				location: waypoint,
				height:   heights[offset],
			})
			offset++
		}
	}
	return samples
}

// buildWall raises one wall mesh from the tagged edges of a collision
// mesh. Reports false when the mesh has no wall edges.
func buildWall(mesh types.CollisionMesh, samples []heightSample) (types.CollisionMesh, bool) {
	// Raised copies of every vertex follow the originals; unused ones
	// are stripped by the caller.
	vertices := make([]types.Vertex, 0, 2*len(mesh.Vertices))
	vertices = append(vertices, mesh.Vertices...)
	for _, vertex := range mesh.Vertices {
		location := vertex.Location
		raised := vertex
		raised.Location = location.WithY(location.Y + wallHeightAt(location, samples))
		vertices = append(vertices, raised)
	}
	remap := func(idx int) int { return idx + len(mesh.Vertices) }

	var polygons []types.CollisionPolygon
	for _, polygon := range mesh.Polygons {
		if !polygon.HasWallCollision {
			continue
		}
		for _, edge := range polygon.Edges {
			a, b, ok := edgeVertices(polygon.Face, edge)
			if !ok {
				continue
			}
			polygons = append(polygons, types.CollisionPolygon{
				Face:            []int{a, b, remap(b), remap(a)},
				HasFiniteHeight: polygon.HasFiniteHeight,
			})
		}
	}
	if len(polygons) == 0 {
		return types.CollisionMesh{}, false
	}
	return types.CollisionMesh{
		Vertices:        vertices,
		Polygons:        polygons,
		CollisionEffect: mesh.CollisionEffect,
	}, true
}

// edgeVertices returns the vertex index pair of a polygon edge, wound
// so that the raised quad faces into the track.
func edgeVertices(face []int, edge types.Edge) (int, int, bool) {
	if len(face) < 3 {
		return 0, 0, false
	}
	last := len(face) - 1
	switch edge {
	case types.EdgeFront:
		return face[1], face[0], true
	case types.EdgeLeft:
		return face[2], face[1], true
	case types.EdgeBack:
		return face[last], face[2], true
	case types.EdgeRight:
		return face[0], face[last], true
	}
	return 0, 0, false
}

// wallHeightAt picks the wall height at a location: the minimum height
// among the three horizontally closest waypoint samples.
func wallHeightAt(location types.Vector3d, samples []heightSample) float64 {
	if len(samples) == 0 {
		return 0
	}
	sorted := make([]heightSample, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool {
		return location.HorizontalDistance(sorted[i].location) < location.HorizontalDistance(sorted[j].location)
	})
	count := 3
	if count > len(sorted) {
		count = len(sorted)
	}
	height := sorted[0].height
	for _, sample := range sorted[1:count] {
		if sample.height < height {
			height = sample.height
		}
	}
	return height
}
