// Package engine wires schema preparation, tree resolution, widget
// decoration and validation into a single editing session, providing a
// dependency injection friendly entry point for renderers and hosts.
package engine
