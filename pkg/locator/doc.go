// Package locator finds handler units by name.
//
// Go cannot load types by name at runtime, so programs register their units
// up front, typically from an init function:
//
//	func init() {
//	    locator.MustRegisterType[Greeter]("greeter.Greeter")
//	    locator.RegisterFunc("greeter.Hello", Hello)
//	}
//
// Locate then instantiates a registered unit and classifies it as a typed or a
// streaming handler.
package locator
