// Package data holds the default reference tables compiled into the binary.
package data

import "embed"

// Tables holds LEAP_SEC.txt, DUT1.txt, NUT_LS.txt and NUT_PL.txt.
//
//go:embed LEAP_SEC.txt DUT1.txt NUT_LS.txt NUT_PL.txt
var Tables embed.FS
