// Package otp provides the delivery code record that gates the hand-off of an order.
//
// A record is issued when the robot starts delivering, lives for TTL and can be
// consumed exactly once. Check reports, in this order of precedence, an already used
// code, an expired code, too many wrong attempts, and finally a wrong code.
package otp
