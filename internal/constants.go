package internal

import "time"

var OneSecond = 1 * time.Second
var TenSeconds = 10 * time.Second
