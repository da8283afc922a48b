package pointcloud

import (
	"testing"

	"go.viam.com/test"
)

func TestRelabel(t *testing.T) {
	p := NewVector(1, 2, 3)

	relabeled := Relabel(p, ConventionLidar, ConventionArray)
	test.That(t, relabeled, test.ShouldResemble, NewVector(2, 1, 3))

	// applying the reverse translation restores the input exactly
	test.That(t, Relabel(relabeled, ConventionArray, ConventionLidar), test.ShouldResemble, p)

	// relabeling to the same convention is the identity
	test.That(t, Relabel(p, ConventionLidar, ConventionLidar), test.ShouldResemble, p)
}

func TestUpAxis(t *testing.T) {
	test.That(t, ConventionLidar.UpAxis(), test.ShouldEqual, 2)
	test.That(t, ConventionArray.UpAxis(), test.ShouldEqual, 2)

	zFirst := Convention{Altitude, Easting, Northing}
	test.That(t, zFirst.UpAxis(), test.ShouldEqual, 0)
}

func TestConventionValid(t *testing.T) {
	test.That(t, ConventionLidar.Valid(), test.ShouldBeNil)
	test.That(t, ConventionArray.Valid(), test.ShouldBeNil)

	err := Convention{Easting, Easting, Altitude}.Valid()
	test.That(t, err, test.ShouldNotBeNil)
}

func TestComponent(t *testing.T) {
	p := NewVector(4, 5, 6)
	test.That(t, Component(p, 0), test.ShouldEqual, 4)
	test.That(t, Component(p, 1), test.ShouldEqual, 5)
	test.That(t, Component(p, 2), test.ShouldEqual, 6)
}
