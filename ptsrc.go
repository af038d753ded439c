/*
Copyright © 2023 the ptsrc authors.
This file is part of ptsrc.

ptsrc is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

ptsrc is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with ptsrc.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package ptsrc holds the data model shared by the AERMOD point-source
// pre-processing and post-processing pipelines: the run configuration,
// emission source records and their release parameters, and the rules
// for classifying raw release-parameter rows into AERMOD source types.
//
// Pre-processing turns facility and device tables into one AERMOD input
// document per source (see package aermod). Post-processing reads the
// plot files the model writes back, weights them by emission rate
// (package emis), and sums them into concentration and cancer risk
// fields (package conc) that are reported as shapefiles, rankings and
// maps (package report).
package ptsrc

// Version gives the version number.
const Version = "1.0.0"
