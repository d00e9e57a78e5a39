package driver

// SchemaQueries mirror the creators / identity edges collections: one
// creator per (platform, platform_id), lookups by handle, and identity edges
// by source, target and confidence.
var SchemaQueries = []string{
	"CREATE CONSTRAINT ON (c:Creator) ASSERT c.platform, c.platform_id IS UNIQUE;",
	"CREATE INDEX ON :Creator(key);",
	"CREATE INDEX ON :Creator(handle);",
	"CREATE INDEX ON :Creator(platform);",
	"CREATE INDEX ON :IdentityCluster(uuid);",
	"CREATE EDGE INDEX ON :IDENTITY(source_key);",
	"CREATE EDGE INDEX ON :IDENTITY(target_key);",
	"CREATE EDGE INDEX ON :IDENTITY(confidence_score);",
	"CREATE INDEX ON :CreatorEmbedding(id);",
	"CREATE INDEX ON :CreatorEmbedding(namespace);",
}

const (
	UpsertCreatorQuery = `
		MERGE (c:Creator {platform: $platform, platform_id: $platform_id})
		SET c.key = $key,
			c.id = $id,
			c.handle = $handle,
			c.verified = $verified,
			c.name = $name,
			c.bio = $bio,
			c.updated_at = $updated_at
		RETURN c.key AS key
	`

	// A creator ingested by handle alone gives way to the same handle
	// arriving with its platform ID.
	DeleteHandleOnlyCreatorQuery = `
		MATCH (c:Creator {key: $key})
		WHERE c.id IS NULL OR c.id = ''
		DETACH DELETE c
	`

	ListCreatorsQuery = `
		MATCH (c:Creator)
		RETURN c.id AS id, c.platform AS platform, c.handle AS handle,
			c.verified AS verified, c.name AS name, c.bio AS bio
		ORDER BY c.key
	`

	GetCreatorQuery = `
		MATCH (c:Creator {key: $key})
		RETURN c.id AS id, c.platform AS platform, c.handle AS handle,
			c.verified AS verified, c.name AS name, c.bio AS bio
	`

	// Identity state is rebuilt wholesale on each resolution run.
	ClearIdentityEdgesQuery = `
		MATCH (:Creator)-[e:IDENTITY]->(:Creator)
		DELETE e
	`

	ClearClustersQuery = `
		MATCH (cl:IdentityCluster)
		DETACH DELETE cl
	`

	SaveIdentityEdgeQuery = `
		MATCH (source:Creator {key: $source_key})
		MATCH (target:Creator {key: $target_key})
		MERGE (source)-[e:IDENTITY {uuid: $uuid}]->(target)
		SET e.source_key = $source_key,
			e.target_key = $target_key,
			e.confidence_score = $confidence_score,
			e.match_type = $match_type,
			e.reason = $reason,
			e.is_match = $is_match,
			e.handle = $handle,
			e.created_at = $created_at
		RETURN e.uuid AS uuid
	`

	SaveClusterQuery = `
		MERGE (cl:IdentityCluster {uuid: $uuid})
		SET cl.anchor = $anchor,
			cl.size = $size,
			cl.created_at = $created_at
		WITH cl
		UNWIND $member_keys AS member_key
		MATCH (c:Creator {key: member_key})
		MERGE (cl)-[:HAS_MEMBER]->(c)
		RETURN cl.uuid AS uuid
	`

	GetClusterIndexQuery = `
		MATCH (cl:IdentityCluster)-[:HAS_MEMBER]->(c:Creator)
		RETURN c.key AS key, cl.uuid AS cluster_uuid
	`

	ListClusterMembersQuery = `
		MATCH (cl:IdentityCluster)-[:HAS_MEMBER]->(c:Creator)
		RETURN cl.uuid AS cluster_uuid, cl.anchor AS anchor,
			c.id AS id, c.platform AS platform, c.handle AS handle,
			c.verified AS verified, c.name AS name, c.bio AS bio
		ORDER BY cl.uuid, c.key
	`

	ListIdentityEdgesQuery = `
		MATCH (:Creator)-[e:IDENTITY]->(:Creator)
		RETURN e.uuid AS uuid, e.source_key AS source_key, e.target_key AS target_key,
			e.confidence_score AS confidence_score, e.match_type AS match_type,
			e.reason AS reason, e.is_match AS is_match, e.handle AS handle
		ORDER BY e.source_key, e.target_key
	`

	UpsertEmbeddingQuery = `
		MERGE (v:CreatorEmbedding {id: $id, namespace: $namespace})
		SET v.embedding = $embedding,
			v.metadata = $metadata,
			v.updated_at = $updated_at
		RETURN v.id AS id
	`

	DeleteEmbeddingsQuery = `
		MATCH (v:CreatorEmbedding)
		WHERE v.namespace = $namespace AND v.id IN $ids
		DETACH DELETE v
	`

	ShowVectorIndexesQuery = `
		CALL vector_search.show_index_info() YIELD index_name
		RETURN index_name
	`

	// Over-fetches by $limit and applies the namespace filter afterwards;
	// the caller appends extra metadata predicates and the final LIMIT.
	SearchEmbeddingsQuery = `
		CALL vector_search.search($index_name, $limit, $vector) YIELD node, similarity
		WITH node, similarity
		WHERE node.namespace = $namespace
	`

	CreateVectorIndexQuery = `CREATE VECTOR INDEX %s ON :CreatorEmbedding(embedding) WITH CONFIG {"dimension": %d, "capacity": %d, "metric": "%s"};`
)
