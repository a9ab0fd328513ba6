// Package utils holds input validation shared by the bridge endpoints.
package utils
