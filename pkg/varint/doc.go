// Package varint implements the variable-length integer encoding used by
// simulator checkpoint files.
//
// Unsigned values are split into 7-bit groups, most significant group first.
// Every group except the last carries the continuation bit (0x80):
//
//	0   -> 00
//	127 -> 7F
//	128 -> 81 00
//	300 -> 82 2C
//
// This is the MIDI variable-length quantity layout, not LEB128.
//
// Signed values are not zigzag encoded. The magnitude is shifted left by one
// and the low bit carries the sign:
//
//	 5 -> encode(10) -> 0A
//	-1 -> encode(3)  -> 03
//
// The wire value 1 ("negative zero") is otherwise unused and stands for
// math.MinInt64, whose magnitude cannot be shifted without loss.
//
// Strings are a u32 length followed by the raw bytes, with no terminator.
package varint
