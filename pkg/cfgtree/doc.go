// Package cfgtree parses the line oriented device configuration language
// into trees and maps tree tags to register codes.
package cfgtree

// A configuration file holds one tag per line:
//
//	<iio_buff_dev>
//	<buff>
//	<channels>
//	<chan>
//	<name>in_voltage0-voltage1_en</name>
//	<val>1</val>
//	</chan>
//	</channels>
//	<buff_len>
//	<val>64</val>
//	</buff_len>
//	</buff>
//	</iio_buff_dev>
//
// There is no explicit nesting grammar. A node keeps collecting the
// following lines as children until a line carries its own tag again;
// that line terminates it. A line with an inline value is a leaf.
//
// Register codes combine structural flags with the device type of the
// root so a walker can dispatch on the code accumulated along the path.
