// Package build compiles community packages from source with xbps-src.
//
// A build overlays the package's template directory from a community
// source checkout into a void-packages checkout, runs
// "./xbps-src pkg <name>" there, removes the overlay again and reports
// the local binary repository (hostdir/binpkgs) holding the result.
// Installing the result goes through the XBPS runner.
package build
