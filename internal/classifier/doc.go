// Package classifier scores chat messages with a pre-trained linear
// bag-of-words model loaded from two serialized artifacts.
package classifier
