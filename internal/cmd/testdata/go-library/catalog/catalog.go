// Package catalog only has tests.
package catalog
