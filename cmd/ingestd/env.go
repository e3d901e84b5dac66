package main

import "os"

// getenv is swapped in tests.
var getenv = os.Getenv
