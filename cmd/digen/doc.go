// Command digen generates explicit registration code for a di.Registry.
//
// You describe components in a small yaml (or json) file next to the code
// that owns them, and digen writes one function that registers every
// component with its key, lifetime and ordered dependency keys. The
// generated code only calls the public di API (Injectable, Arg, Register),
// so it is plain Go you can read, step through and check in.
//
// There is no reflection and no runtime scanning. The descriptor is the
// single place where keys and constructor argument order are declared.
//
// Descriptor format
//
//	package: shop
//	function: RegisterShop       # default RegisterComponents
//	init: true                   # also register into di.Default() from init()
//	imports:
//	  - path: github.com/acme/shop/store
//	components:
//	  - key: db
//	    type: "*store.DB"
//	    constructor: store.Open
//	    lifetime: singleton      # transient | singleton | empty for registry default
//	  - key: basket
//	    type: "*Basket"
//	    constructor: NewBasket
//	    returnsError: false      # constructor returns only the value
//	    deps:
//	      - { key: db, type: "*store.DB" }
//
// Dependency order in deps is the constructor's argument order.
//
// Validation
//
// digen rejects a descriptor with a missing package or components, a
// component without key, type or constructor, a duplicate key, an unknown
// lifetime, or a dependency cycle among declared components. Dependency keys
// that are not declared in the file are assumed to be registered elsewhere.
//
// Typical go:generate usage
//
//	//go:generate go run github.com/sghaida/diregistry/cmd/digen -spec ./components.di.yaml -out ./components_di.gen.go
//
// The output is gofmt'ed, sorted by component key, stamped with the sha256
// of the descriptor and written atomically.
package main
