package main

// watchKeypress is unavailable without termios; running can only be stopped
// by a breakpoint or halt.
func watchKeypress(stop <-chan struct{}, _ func()) {
	<-stop
}
