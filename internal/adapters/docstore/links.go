package docstore

// Resource links are built locally instead of being looked up from the store.

func DatabaseLink(database string) string {
	return "/dbs/" + database
}

func CollectionLink(database, collection string) string {
	return DatabaseLink(database) + "/colls/" + collection
}

func DocumentLink(database, collection, id string) string {
	return CollectionLink(database, collection) + "/docs/" + id + "/"
}
