// Package signals models the four health indicators hbstatus tracks for a
// Homebridge hub and the three-valued readings taken for them on each run.
//
// A reading is Unknown whenever the hub could not answer for that indicator,
// so callers never have to distinguish "fetch failed" from "not yet fetched".
package signals
