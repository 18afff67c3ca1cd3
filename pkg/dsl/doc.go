/*
Package dsl provides two ways of describing machines besides a literal domain.Config:
a fluent Go builder and a YAML document format.

Builder:

	def, err := dsl.New[Order]("checkout", "cart").
		State("cart").On("pay", "charging").
		State("charging").Entry(charge).OnSuccess("paid").OnError("cart").
		State("paid").
		Build()

YAML, with entry functions resolved by name through a registry.Registry:

	name: checkout
	initial: cart
	states:
	  cart:
	    on: {pay: charging}
	  charging:
	    entry: charge
	    onSuccess: paid
	    onError: cart
	  paid: {}
*/
package dsl
