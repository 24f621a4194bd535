// Package redisom maps Go structs onto JSON documents in Redis and
// compiles typed predicates into search queries over them.
//
// A record type declares its indexed fields with `rom` struct tags.
// The schema compiler flattens nested records, arrays and maps into
// leaf field descriptors; the migrator creates one search index per
// type from those descriptors.
//
//	type User struct {
//	    ID      string  `json:"id" rom:"pk"`
//	    Email   string  `json:"email" rom:"tag"`
//	    Age     int     `json:"age" rom:"numeric,sortable"`
//	    Address Address `json:"address"`
//	}
//
//	type Address struct {
//	    City string `json:"city" rom:"tag"`
//	}
//
//	client, _ := redisom.NewFromURL(ctx, "redis://localhost:6379")
//	users, _ := redisom.NewRepository[User](client)
//
//	schema, _ := redisom.Model[User]()
//	_ = redisom.NewMigrator(client).Migrate(ctx, schema)
//
//	id, _ := users.Save(ctx, &User{Email: "alice@example.com", Age: 34})
//
// Queries compose typed predicates; rendering is deferred until the
// query executes, so referencing an unknown field fails at that point,
// not at construction:
//
//	adults, _ := users.Search(
//	    redisom.F[User]("age").Gte(18),
//	    redisom.F[User]("address.city").Eq("Berlin"),
//	).SortBy("age").Limit(20).Find(ctx)
package redisom
