package types

import "fmt"

// VertexLocations returns the flattened location sequence of the mesh.
func (m DrawableMesh) VertexLocations() []Vector3d {
	return vertexLocations(m.Vertices)
}

// VertexNormals returns the flattened normal sequence, or nil unless
// every vertex carries a normal.
func (m DrawableMesh) VertexNormals() []Vector3d {
	normals := make([]Vector3d, 0, len(m.Vertices))
	for _, vert := range m.Vertices {
		if vert.Normal == nil {
			return nil
		}
		normals = append(normals, *vert.Normal)
	}
	return normals
}

// VertexColors returns the flattened color sequence, or nil unless every
// vertex carries a color.
func (m DrawableMesh) VertexColors() []Color {
	colors := make([]Color, 0, len(m.Vertices))
	for _, vert := range m.Vertices {
		if vert.Color == nil {
			return nil
		}
		colors = append(colors, *vert.Color)
	}
	return colors
}

// VertexLocations returns the flattened location sequence of the mesh.
func (m CollisionMesh) VertexLocations() []Vector3d {
	return vertexLocations(m.Vertices)
}

func vertexLocations(vertices []Vertex) []Vector3d {
	locations := make([]Vector3d, len(vertices))
	for i, vert := range vertices {
		locations[i] = vert.Location
	}
	return locations
}

// MergeCollisionMeshes combines two collision meshes into one, remapping
// the face indices of the second mesh past the vertices of the first.
// The merged mesh keeps the collision effect of the first mesh.
func MergeCollisionMeshes(a, b CollisionMesh) CollisionMesh {
	vertices := make([]Vertex, 0, len(a.Vertices)+len(b.Vertices))
	vertices = append(vertices, a.Vertices...)
	vertices = append(vertices, b.Vertices...)

	polygons := make([]CollisionPolygon, 0, len(a.Polygons)+len(b.Polygons))
	polygons = append(polygons, a.Polygons...)
	offset := len(a.Vertices)
	for _, polygon := range b.Polygons {
		face := make([]int, len(polygon.Face))
		for i, idx := range polygon.Face {
			face[i] = idx + offset
		}
		remapped := polygon
		remapped.Face = face
		polygons = append(polygons, remapped)
	}
	return CollisionMesh{
		Vertices:        vertices,
		Polygons:        polygons,
		CollisionEffect: a.CollisionEffect,
	}
}

// RemoveUnusedVertices drops every vertex not referenced by any polygon
// and remaps the faces accordingly. First-seen vertex order is kept.
func RemoveUnusedVertices(mesh CollisionMesh) CollisionMesh {
	remapping := make(map[int]int)
	vertices := make([]Vertex, 0, len(mesh.Vertices))
	for _, polygon := range mesh.Polygons {
		for _, idx := range polygon.Face {
			if _, ok := remapping[idx]; !ok {
				remapping[idx] = len(vertices)
				vertices = append(vertices, mesh.Vertices[idx])
			}
		}
	}

	polygons := make([]CollisionPolygon, 0, len(mesh.Polygons))
	for _, polygon := range mesh.Polygons {
		face := make([]int, len(polygon.Face))
		for i, idx := range polygon.Face {
			face[i] = remapping[idx]
		}
		remapped := polygon
		remapped.Face = face
		polygons = append(polygons, remapped)
	}
	return CollisionMesh{
		Vertices:        vertices,
		Polygons:        polygons,
		CollisionEffect: mesh.CollisionEffect,
	}
}

// UniqueResourceNames disambiguates same-named resources by appending a
// repeat counter: the second occurrence of "name" becomes "name-1", the
// third "name-2", in first-seen order. Same-named resources legitimately
// occur across mirrored/non-mirrored texture variants.
func UniqueResourceNames(resources []Resource) []Resource {
	seen := make(map[string]int)
	unique := make([]Resource, 0, len(resources))
	for _, resource := range resources {
		repeats := seen[resource.Name]
		seen[resource.Name] = repeats + 1
		if repeats > 0 {
			renamed := resource
			renamed.Name = fmt.Sprintf("%s-%d", resource.Name, repeats)
			unique = append(unique, renamed)
			continue
		}
		unique = append(unique, resource)
	}
	return unique
}
