// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package geom provides the geometric value types used by drape.
//
// Geographic values ([Location], [Position], [Sector]) are expressed in
// degrees and meters. Cartesian values use [mgl64.Vec3] and [mgl64.Mat4]
// from github.com/go-gl/mathgl so that matrices can be handed to a GPU
// program without conversion beyond float32 narrowing.
//
// Geographic distances returned by the great circle and rhumb line
// functions are angular distances in radians. Multiply by a globe radius
// to obtain meters.
//
// All types are plain values. None of them is safe for concurrent mutation,
// but copies are cheap and independent.
package geom
