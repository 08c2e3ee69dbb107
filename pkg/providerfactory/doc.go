// Package providerfactory turns the backends section of the configuration
// into adapters and the routing registry built from them.
package providerfactory
